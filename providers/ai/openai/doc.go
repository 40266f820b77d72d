// Package openai implements the ai provider interfaces for OpenAI-compatible
// chat completion servers. The defaults target a local Ollama instance
// (http://localhost:11434/v1), which needs no API key.
//
// [OpenAIProvider.StreamMessage] posts to /chat/completions with stream=true
// and returns an [ai.ChatStream] over the decoded SSE chunks.
// [OpenAIProvider.SendMessage] is the non-streaming variant of the same call.
//
// Models that emit tool calls as a JSON array in their text content instead of
// the native tool_calls field are handled by a fallback parser that repairs
// the JSON and turns it into regular tool call events.
package openai

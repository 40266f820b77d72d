// Package config loads the chat client settings.
//
// Sources are layered with the precedence flag > environment > config file >
// default. Environment variables use the MATHCHAT_ prefix with dots replaced
// by underscores (MATHCHAT_RETRY_MAX_RETRIES), and a .env file is loaded
// first when present. OPENAI_API_BASE_URL, OPENAI_API_KEY and LOG_LEVEL are
// honoured as fallbacks.
package config

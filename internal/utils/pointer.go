package utils

// Ptr returns a pointer to a copy of v. Optional request fields use pointers
// so that a zero value, such as temperature 0, is still sent:
//
//	Temperature: utils.Ptr(0.0)
func Ptr[T any](v T) *T {
	return &v
}

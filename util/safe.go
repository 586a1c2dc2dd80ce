package util

// SafeString returns empty string if null
func SafeString(input *string) string {
	if input == nil {
		return ""
	}
	return *input
}

// SafeInt32 returns 0 if null
func SafeInt32(input *int32) int32 {
	if input == nil {
		return 0
	}
	return *input
}

// RefString returns a reference to a string
func RefString(input string) *string {
	return &input
}

// RefInt32 returns a reference to an int32
func RefInt32(input int32) *int32 {
	return &input
}

// RefStrings converts a row of plain strings into optional cells, with "" kept as a value.
func RefStrings(input ...string) []*string {
	out := make([]*string, len(input))
	for i := range input {
		out[i] = RefString(input[i])
	}
	return out
}

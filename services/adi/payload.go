package adi

import (
	"encoding/json"
	"strconv"

	"adicode-go/errcode"
	"adicode-go/types"
)

// decode accepts a payload of type T directly, or anything that round-trips
// through JSON into T ([]byte, string, map). A nil payload is the zero T.
func decode[T any](src any) (T, error) {
	var dst T
	switch v := src.(type) {
	case nil:
		return dst, nil
	case T:
		return v, nil
	case []byte:
		if err := json.Unmarshal(v, &dst); err != nil {
			return dst, errcode.InvalidPayload
		}
	case string:
		if err := json.Unmarshal([]byte(v), &dst); err != nil {
			return dst, errcode.InvalidPayload
		}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return dst, errcode.InvalidPayload
		}
		if err := json.Unmarshal(b, &dst); err != nil {
			return dst, errcode.InvalidPayload
		}
	}
	return dst, nil
}

// portToken reads a port identifier from a topic token: an int is taken as
// is, a string goes through types.ParsePortID.
func portToken(tok any) (int, error) {
	switch v := tok.(type) {
	case int:
		return v, nil
	case string:
		return types.ParsePortID(v)
	}
	return 0, errcode.InvalidTopic
}

// handleToken reads an encoder or ultrasonic handle.
func handleToken(tok any) (int, error) {
	switch v := tok.(type) {
	case int:
		return v, nil
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
	}
	return 0, errcode.InvalidTopic
}

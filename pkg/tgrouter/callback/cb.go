// Package callback encodes the query/value pairs carried in inline keyboard
// callback data, e.g. "lang:ru".
package callback

import (
	"errors"
	"fmt"
	"strings"
)

const separator = ":"

// maxDataLen is Telegram's limit for callback_data, in bytes.
const maxDataLen = 64

var (
	ErrMalformed = errors.New("malformed callback data")
	ErrTooLong   = errors.New("callback data too long")
)

type Data struct {
	Query string
	Value string
}

func (d Data) String() string {
	return d.Query + separator + d.Value
}

// Encode builds callback data for a button. The query must not contain the
// separator; the value may.
func Encode(query, value string) (string, error) {
	if query == "" || strings.Contains(query, separator) {
		return "", fmt.Errorf("%w: query %q", ErrMalformed, query)
	}
	data := Data{Query: query, Value: value}.String()
	if len(data) > maxDataLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, len(data))
	}
	return data, nil
}

// Prefix is what every callback for query starts with, suitable for
// tgrouter.Callback.Prefix.
func Prefix(query string) string {
	return query + separator
}

func Parse(data string) (Data, error) {
	query, value, ok := strings.Cut(data, separator)
	if !ok || query == "" {
		return Data{}, fmt.Errorf("%w: %q", ErrMalformed, data)
	}
	return Data{Query: query, Value: value}, nil
}

func Query(data string) string {
	d, err := Parse(data)
	if err != nil {
		return ""
	}
	return d.Query
}

func Value(data string) string {
	d, err := Parse(data)
	if err != nil {
		return ""
	}
	return d.Value
}

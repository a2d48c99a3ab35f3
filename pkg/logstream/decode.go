package logstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const jsonWhitespace = " \t\r\n"

// DecodeQueryResult decodes a query response. Servers send either
// {"records":[...],"fields":[...]} or a bare array of records; the first
// non-whitespace byte picks the shape. An empty body is an empty result; an
// object without "records" is an error, not an empty result.
func DecodeQueryResult(body []byte) (*QueryResult, error) {
	trimmed := bytes.TrimLeft(body, jsonWhitespace)
	if len(trimmed) == 0 {
		return &QueryResult{Records: []Record{}}, nil
	}

	switch trimmed[0] {
	case '{':
		var wrapped struct {
			Records *[]Record `json:"records"`
			Fields  []string  `json:"fields"`
		}

		err := json.Unmarshal(trimmed, &wrapped)
		if err != nil {
			return nil, NewDecodingError("unexpected format for query result object", err)
		}

		if wrapped.Records == nil {
			return nil, NewDecodingError("unexpected format for query result object: missing records", nil)
		}

		records := *wrapped.Records
		if records == nil {
			records = []Record{}
		}

		return &QueryResult{Records: records, Fields: wrapped.Fields}, nil

	case '[':
		var records []Record

		err := json.Unmarshal(trimmed, &records)
		if err != nil {
			return nil, NewDecodingError("unexpected format for query result array", err)
		}

		if records == nil {
			records = []Record{}
		}

		return &QueryResult{Records: records}, nil

	default:
		return nil, NewDecodingError(
			fmt.Sprintf("unexpected format for query result: leading byte %q", trimmed[0]), nil)
	}
}

// decodeAttempt tries one payload shape.
type decodeAttempt[T any] struct {
	name   string
	decode func([]byte) (T, error)
}

// decodeFirst returns the result of the first attempt that succeeds.
func decodeFirst[T any](body []byte, what string, attempts ...decodeAttempt[T]) (T, error) {
	var (
		zero T
		errs []error
	)

	for _, attempt := range attempts {
		value, err := attempt.decode(body)
		if err == nil {
			return value, nil
		}

		errs = append(errs, fmt.Errorf("as %s: %w", attempt.name, err))
	}

	return zero, NewDecodingError("unexpected format for "+what, errors.Join(errs...))
}

// DecodeRetention decodes retention policies. Servers send a list or a single
// object; some omit the body entirely when nothing is configured.
func DecodeRetention(body []byte) ([]RetentionPolicy, error) {
	if len(bytes.Trim(body, jsonWhitespace)) == 0 {
		return []RetentionPolicy{}, nil
	}

	return decodeFirst(body, "retention",
		decodeAttempt[[]RetentionPolicy]{
			name: "list",
			decode: func(b []byte) ([]RetentionPolicy, error) {
				var policies []RetentionPolicy

				err := json.Unmarshal(b, &policies)
				if err != nil {
					return nil, err
				}

				if policies == nil {
					policies = []RetentionPolicy{}
				}

				return policies, nil
			},
		},
		decodeAttempt[[]RetentionPolicy]{
			name: "object",
			decode: func(b []byte) ([]RetentionPolicy, error) {
				var policy RetentionPolicy

				err := json.Unmarshal(b, &policy)
				if err != nil {
					return nil, err
				}

				return []RetentionPolicy{policy}, nil
			},
		},
	)
}

// DecodeStrict decodes body into T. Unknown fields are ignored and missing
// ones stay zero; only malformed JSON or a type mismatch fails.
func DecodeStrict[T any](body []byte) (T, error) {
	var value T

	err := json.Unmarshal(body, &value)
	if err != nil {
		return value, NewDecodingError(fmt.Sprintf("decoding %T", value), err)
	}

	return value, nil
}

// DecodeAlerts decodes an alert configuration. The consolidated endpoint may
// answer with a bare array or with {"version","alerts"}; the per-stream
// endpoint always wraps.
func DecodeAlerts(body []byte, consolidated bool) (*AlertConfig, error) {
	wrapped := decodeAttempt[*AlertConfig]{
		name: "object",
		decode: func(b []byte) (*AlertConfig, error) {
			var config AlertConfig

			err := json.Unmarshal(b, &config)
			if err != nil {
				return nil, err
			}

			return &config, nil
		},
	}

	if !consolidated {
		return decodeFirst(body, "alerts", wrapped)
	}

	return decodeFirst(body, "alerts",
		decodeAttempt[*AlertConfig]{
			name: "list",
			decode: func(b []byte) (*AlertConfig, error) {
				var alerts []Alert

				err := json.Unmarshal(b, &alerts)
				if err != nil {
					return nil, err
				}

				return &AlertConfig{Alerts: alerts}, nil
			},
		},
		wrapped,
	)
}

// DecodeUsers decodes the user list. Elements are ids on older servers and
// objects on newer ones; User handles both.
func DecodeUsers(body []byte) ([]User, error) {
	return DecodeStrict[[]User](body)
}

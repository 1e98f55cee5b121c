package types

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
)

// FlexibleID decodes an id sent either as a JSON number or as a numeric
// string, since group payloads render ids as strings.
type FlexibleID uint

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return &json.UnmarshalTypeError{Value: "id " + raw, Type: reflect.TypeOf(*id)}
	}

	*id = FlexibleID(v)
	return nil
}

func (id FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(id), 10))
}

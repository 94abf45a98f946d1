package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonValue(v interface{}, name string) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return data, nil
}

func jsonScan(value interface{}, dest interface{}, name string) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, name)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

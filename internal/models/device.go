package models

import (
	"encoding/json"
	"strings"
)

// DeviceInfo is a snapshot of the device as reported by the supervisor
type DeviceInfo struct {
	IPAddress  string  `json:"ip_address"`
	MACAddress MACList `json:"mac_address"`
	Status     string  `json:"status"`
	OSVersion  string  `json:"os_version,omitempty"`
	Commit     string  `json:"commit,omitempty"`
	Hostname   string  `json:"-"`
}

// MACList decodes either a space-separated string or a JSON array of strings
type MACList []string

// UnmarshalJSON accepts null, "aa:bb cc:dd" and ["aa:bb","cc:dd"]
func (m *MACList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = MACList(strings.Fields(single))
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make([]string, 0, len(list))
	for _, mac := range list {
		out = append(out, strings.Fields(mac)...)
	}
	*m = out
	return nil
}

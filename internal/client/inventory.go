package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/edgefleet/agent/internal/logging"
)

const inventoryAttributesPath = "/api/devices/v1/inventory/device/attributes"

type inventoryAttribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// SyncInventory uploads device attributes as a full replace (PUT); on a
// non-200 it retries once with PATCH, since the server may reject full
// replaces for devices with locked attributes (spec §4.4). Success iff
// either request yields HTTP 200. A 401 from either attempt raises
// ErrUnauthorized.
func SyncInventory(c *ApiClient, token string, attributes map[string][]string) error {
	body, err := encodeAttributes(attributes)
	if err != nil {
		return fmt.Errorf("encode inventory attributes: %w", err)
	}

	status, err := inventoryRequest(c, http.MethodPut, token, body)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	logging.Op().Info("inventory: PUT rejected, retrying with PATCH", "status", status)
	status, err = inventoryRequest(c, http.MethodPatch, token, body)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if status != http.StatusOK {
		return fmt.Errorf("inventory: both PUT and PATCH failed, last status %d", status)
	}
	return nil
}

func encodeAttributes(attributes map[string][]string) ([]byte, error) {
	list := make([]inventoryAttribute, 0, len(attributes))
	for name, values := range attributes {
		var value any = values
		if len(values) == 1 {
			value = values[0]
		}
		list = append(list, inventoryAttribute{Name: name, Value: value})
	}
	return json.Marshal(list)
}

func inventoryRequest(c *ApiClient, method, token string, body []byte) (int, error) {
	req, err := http.NewRequest(method, c.ServerURL+inventoryAttributesPath, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		logging.Op().Warn("inventory: request failed", "method", method, "error", err)
		return 0, nil
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

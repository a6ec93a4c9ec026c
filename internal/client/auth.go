package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/edgefleet/agent/internal/logging"
	"github.com/edgefleet/agent/internal/security"
)

const authRequestsPath = "/api/devices/v1/authentication/auth_requests"

type authRequestBody struct {
	IDData      string `json:"id_data"`
	PubKey      string `json:"pubkey"`
	TenantToken string `json:"tenant_token"`
}

// Authenticate performs the signed enrollment handshake (spec §4.3) and
// returns the opaque bearer token from a 200 response. Any other status
// or transport failure returns "" — the caller treats that as "not yet
// authorized" and retries after RetryPollIntervalSeconds.
//
// Preconditions (serverURL, identity, key) are checked locally before
// the request is built; a failure there is logged and returns "".
func Authenticate(c *ApiClient, identity map[string][]string, key security.Signer, tenantToken string) string {
	if c.ServerURL == "" {
		logging.Op().Error("auth: ServerURL is empty")
		return ""
	}
	if len(identity) == 0 {
		logging.Op().Error("auth: identity data is empty")
		return ""
	}
	if key == nil {
		logging.Op().Error("auth: no private key available")
		return ""
	}

	idDataJSON, err := json.Marshal(identity)
	if err != nil {
		logging.Op().Error("auth: failed to encode identity data", "error", err)
		return ""
	}

	pubKeyPEM, err := key.PublicKeyPEM()
	if err != nil {
		logging.Op().Error("auth: failed to encode public key", "error", err)
		return ""
	}

	body := authRequestBody{
		IDData:      string(idDataJSON),
		PubKey:      string(pubKeyPEM),
		TenantToken: tenantToken,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		logging.Op().Error("auth: failed to encode request body", "error", err)
		return ""
	}

	signature, err := key.Sign(bodyBytes)
	if err != nil {
		logging.Op().Error("auth: failed to sign request", "error", err)
		return ""
	}

	req, err := http.NewRequest(http.MethodPost, c.ServerURL+authRequestsPath, bytes.NewReader(bodyBytes))
	if err != nil {
		logging.Op().Error("auth: failed to build request", "error", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "API_KEY")
	req.Header.Set("X-MEN-Signature", base64.StdEncoding.EncodeToString(signature))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		logging.Op().Warn("auth: request failed", "error", err)
		return ""
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Op().Warn("auth: failed to read response", "error", err)
		return ""
	}

	if resp.StatusCode != http.StatusOK {
		logging.Op().Warn("auth: server rejected authorization request", "status", resp.StatusCode, "body", string(respBody))
		return ""
	}

	return string(respBody)
}

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/edgefleet/agent/internal/agent"
	"github.com/edgefleet/agent/internal/deploylog"
	"github.com/edgefleet/agent/internal/logging"
)

const deploymentsNextPath = "/api/devices/v1/deployments/device/deployments/next"

// PollNextDeployment asks the server for the next deployment assigned to
// this device (spec §4.5/§6). A nil, nil result means "no deployment" —
// either because the server said 204, the status was unrecognized, or
// the 200 body failed to parse. ErrUnauthorized is returned on 401.
func PollNextDeployment(c *ApiClient, token, deviceType, artifactName string) (*agent.DeploymentInfo, error) {
	q := url.Values{}
	q.Set("device_type", deviceType)
	q.Set("artifact_name", artifactName)

	req, err := http.NewRequest(http.MethodGet, c.ServerURL+deploymentsNextPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		logging.Op().Warn("deployments: poll request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			logging.Op().Warn("deployments: failed to read poll response", "error", err)
			return nil, nil
		}
		info, err := agent.ParseDeploymentInfo(body)
		if err != nil {
			logging.Op().Info("deployments: poll response did not parse, treating as no deployment", "error", err)
			return nil, nil
		}
		return info, nil
	case http.StatusNoContent:
		return nil, nil
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		logging.Op().Info("deployments: unexpected poll status", "status", resp.StatusCode)
		return nil, nil
	}
}

// DeploymentStatus names the three values the status endpoint accepts.
type DeploymentStatus string

const (
	StatusDownloading DeploymentStatus = "downloading"
	StatusSuccess     DeploymentStatus = "success"
	StatusFailure     DeploymentStatus = "failure"
)

// ReportStatus PUTs the deployment's current status. Expects 204.
func ReportStatus(c *ApiClient, token, deploymentID string, status DeploymentStatus) error {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/devices/v1/deployments/device/deployments/%s/status", deploymentID)
	req, err := http.NewRequest(http.MethodPut, c.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		logging.Op().Warn("deployments: status report request failed", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("deployments: status report got unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ReportLog PUTs the captured deployment log records. Called in addition
// to ReportStatus(..., StatusFailure) when a deployment fails (spec
// §4.5).
func ReportLog(c *ApiClient, token, deploymentID string, records []deploylog.Record) error {
	if records == nil {
		records = []deploylog.Record{}
	}
	body, err := json.Marshal(map[string][]deploylog.Record{"messages": records})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/devices/v1/deployments/device/deployments/%s/log", deploymentID)
	req, err := http.NewRequest(http.MethodPut, c.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		logging.Op().Warn("deployments: log upload request failed", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("deployments: log upload got unexpected status %d", resp.StatusCode)
	}
	return nil
}

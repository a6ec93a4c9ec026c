package agent

import (
	"encoding/json"
	"fmt"
)

// DeploymentInfo is the flattened deployment assignment the state
// machine carries through Download/Install/Report (spec §3). The wire
// shape from the server is nested; ParseDeploymentInfo flattens it
// or fails outright rather than constructing a partial value.
type DeploymentInfo struct {
	ID          string
	ArtifactName string
	ArtifactURI  string
}

type deploymentResponse struct {
	ID       string `json:"id"`
	Artifact struct {
		ArtifactName string `json:"artifact_name"`
		Source       struct {
			URI string `json:"uri"`
		} `json:"source"`
	} `json:"artifact"`
}

// ParseDeploymentInfo decodes the server's next-deployment JSON body. A
// missing ID, artifact name, or artifact URI is a parse failure — the
// caller treats that the same as "no deployment" (spec §4.5).
func ParseDeploymentInfo(body []byte) (*DeploymentInfo, error) {
	var resp deploymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode deployment response: %w", err)
	}

	if resp.ID == "" || resp.Artifact.ArtifactName == "" || resp.Artifact.Source.URI == "" {
		return nil, fmt.Errorf("deployment response missing required field (id=%q artifact_name=%q uri=%q)",
			resp.ID, resp.Artifact.ArtifactName, resp.Artifact.Source.URI)
	}

	return &DeploymentInfo{
		ID:           resp.ID,
		ArtifactName: resp.Artifact.ArtifactName,
		ArtifactURI:  resp.Artifact.Source.URI,
	}, nil
}

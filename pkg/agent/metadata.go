package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const metadataBaseURL = "http://169.254.169.254/latest"

// InstanceIdentity is the subset of the instance-identity document
// the agent needs to construct region-pinned AWS clients (§4.7
// phase 1), grounded on host.py's get_metadata().
type InstanceIdentity struct {
	InstanceID string `json:"instanceId"`
	Region     string `json:"region"`
}

// FetchInstanceIdentity retrieves and decodes the instance-identity
// document via IMDSv2 (token then document fetch).
func FetchInstanceIdentity(ctx context.Context) (*InstanceIdentity, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPut, metadataBaseURL+"/api/token", nil)
	if err != nil {
		return nil, err
	}
	tokenReq.Header.Set("X-aws-ec2-metadata-token-ttl-seconds", "60")
	tokenResp, err := client.Do(tokenReq)
	if err != nil {
		return nil, fmt.Errorf("fetching IMDS token: %w", err)
	}
	defer tokenResp.Body.Close()
	tokenBytes, err := io.ReadAll(tokenResp.Body)
	if err != nil {
		return nil, err
	}
	token := string(tokenBytes)

	docReq, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataBaseURL+"/dynamic/instance-identity/document", nil)
	if err != nil {
		return nil, err
	}
	docReq.Header.Set("X-aws-ec2-metadata-token", token)
	docResp, err := client.Do(docReq)
	if err != nil {
		return nil, fmt.Errorf("fetching instance identity document: %w", err)
	}
	defer docResp.Body.Close()

	var identity InstanceIdentity
	if err := json.NewDecoder(docResp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decoding instance identity document: %w", err)
	}
	return &identity, nil
}

package pollwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
)

// Source fetches the current reconciled tally of one poll.
type Source interface {
	Tally(ctx context.Context, pollID uint64) (httptransport.TallyResponse, error)
}

// APISource reads tallies from the HTTP API.
type APISource struct {
	BaseURL string
	Client  *http.Client
}

func (s APISource) Tally(ctx context.Context, pollID uint64) (httptransport.TallyResponse, error) {
	url := fmt.Sprintf("%s/v1/polls/%d/tally", strings.TrimRight(s.BaseURL, "/"), pollID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return httptransport.TallyResponse{}, fmt.Errorf("fetch tally: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr httptransport.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return httptransport.TallyResponse{}, fmt.Errorf("fetch tally: status %d", resp.StatusCode)
		}
		return httptransport.TallyResponse{}, fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}

	var tally httptransport.TallyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tally); err != nil {
		return httptransport.TallyResponse{}, fmt.Errorf("decode tally: %w", err)
	}
	return tally, nil
}

// CometSource reads tallies through the node's ABCI query path over CometBFT
// RPC, so every read reflects the last committed block.
type CometSource struct {
	client *rpchttp.HTTP
}

func NewCometSource(rpcURL string) (*CometSource, error) {
	client, err := rpchttp.New(rpcURL, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("create rpc client: %w", err)
	}
	return &CometSource{client: client}, nil
}

func (s *CometSource) Tally(ctx context.Context, pollID uint64) (httptransport.TallyResponse, error) {
	result, err := s.client.ABCIQuery(ctx, fmt.Sprintf("/tally/%d", pollID), nil)
	if err != nil {
		return httptransport.TallyResponse{}, fmt.Errorf("abci query: %w", err)
	}
	if result.Response.Code != 0 {
		return httptransport.TallyResponse{}, fmt.Errorf("abci query code %d: %s", result.Response.Code, result.Response.Log)
	}
	var tally httptransport.TallyResponse
	if err := json.Unmarshal(result.Response.Value, &tally); err != nil {
		return httptransport.TallyResponse{}, fmt.Errorf("decode tally: %w", err)
	}
	return tally, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, клиент не зависит от сервера) ---

// RunResponse — run из API.
type RunResponse struct {
	ID         string         `json:"id"`
	PlanName   string         `json:"plan_name"`
	Network    string         `json:"network"`
	ChainID    uint64         `json:"chain_id"`
	Status     string         `json:"status"`
	Inputs     map[string]any `json:"inputs,omitempty"`
	StartedAt  string         `json:"started_at,omitempty"`
	FinishedAt string         `json:"finished_at,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	FailedStep string         `json:"failed_step,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// DeploymentResponse — результат шага из API.
type DeploymentResponse struct {
	RunID       string `json:"run_id,omitempty"`
	Index       int    `json:"index"`
	StepID      string `json:"step_id"`
	Contract    string `json:"contract"`
	Address     string `json:"address"`
	TxHash      string `json:"tx_hash,omitempty"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	Reused      bool   `json:"reused,omitempty"`
	DeployedAt  string `json:"deployed_at"`
}

// RunDetailResponse — run вместе с результатами шагов.
type RunDetailResponse struct {
	RunResponse
	Deployments []DeploymentResponse `json:"deployments"`
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	Network string
	Plan    string
	Status  string
	Limit   int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API nodus-deploy serve.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.Network != "" {
		params.Set("network", opts.Network)
	}
	if opts.Plan != "" {
		params.Set("plan", opts.Plan)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var runs []RunResponse
	err := c.get("/api/v1/runs", params, &runs)
	return runs, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunDetailResponse, error) {
	var run RunDetailResponse
	if err := c.get("/api/v1/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// --- HTTP helpers ---

// get выполняет GET и разбирает поле data ответа
// (у объектов и списков оно одно и то же).
func (c *Client) get(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(dr.Data, result)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}

// APIError — ошибка, которую вернул сервер истории.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HistoryDisabled сообщает, что сервер запущен без базы данных.
func (e *APIError) HistoryDisabled() bool {
	return e.Code == "DB_DISABLED"
}

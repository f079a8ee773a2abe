package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MLflowClient talks to an MLflow tracking server over its REST 2.0 API.
type MLflowClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewMLflowClient(baseURL string) *MLflowClient {
	return &MLflowClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx answer from the tracking server.
type APIError struct {
	Status    int    `json:"-"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mlflow: %d %s: %s", e.Status, e.ErrorCode, e.Message)
}

func (c *MLflowClient) CreateExperiment(ctx context.Context, name string) (string, error) {
	var resp struct {
		ExperimentID string `json:"experiment_id"`
	}
	err := c.do(ctx, http.MethodPost, "experiments/create", map[string]string{"name": name}, &resp)
	return resp.ExperimentID, err
}

func (c *MLflowClient) GetExperimentByName(ctx context.Context, name string) (string, error) {
	var resp struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	path := "experiments/get-by-name?experiment_name=" + url.QueryEscape(name)
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Experiment.ExperimentID, err
}

func (c *MLflowClient) CreateRun(ctx context.Context, experimentID string) (string, error) {
	var resp struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	req := map[string]any{
		"experiment_id": experimentID,
		"start_time":    time.Now().UnixMilli(),
	}
	err := c.do(ctx, http.MethodPost, "runs/create", req, &resp)
	return resp.Run.Info.RunID, err
}

func (c *MLflowClient) LogParam(ctx context.Context, runID, key, value string) error {
	req := map[string]string{"run_id": runID, "key": key, "value": value}
	return c.do(ctx, http.MethodPost, "runs/log-parameter", req, nil)
}

func (c *MLflowClient) LogMetric(ctx context.Context, runID, key string, value float64, at time.Time) error {
	req := map[string]any{
		"run_id":    runID,
		"key":       key,
		"value":     value,
		"timestamp": at.UnixMilli(),
		"step":      0,
	}
	return c.do(ctx, http.MethodPost, "runs/log-metric", req, nil)
}

func (c *MLflowClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api/2.0/mlflow/"+path, rd)
	if err != nil {
		return errors.Wrap(err, "mlflow request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "mlflow %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s", path)
}

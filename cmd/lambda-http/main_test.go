package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"

	"resume-enhancer/internal/shared/server/respond"
)

func TestColdStartReportsBuildFailure(t *testing.T) {
	calls := 0
	cs := &coldStart{build: func() (*gin.Engine, error) {
		calls++
		return nil, errors.New("no database")
	}}
	req := events.APIGatewayV2HTTPRequest{}
	req.RequestContext.RequestID = "req-1"

	for i := 0; i < 2; i++ {
		resp, err := cs.handle(context.Background(), req)
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", resp.StatusCode)
		}
		var body respond.ErrorResponse
		if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Code != "service_unavailable" {
			t.Fatalf("unexpected code %q", body.Error.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("build should run once, ran %d times", calls)
	}
}

func TestColdStartProxiesToRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cs := &coldStart{build: func() (*gin.Engine, error) {
		r := gin.New()
		r.GET("/api/v1/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
		return r, nil
	}}
	req := events.APIGatewayV2HTTPRequest{
		RawPath: "/api/v1/health",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/v1/health"},
		},
	}
	resp, err := cs.handle(context.Background(), req)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
}

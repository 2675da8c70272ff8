// Command lambda-http serves the enhancement API behind API Gateway HTTP APIs.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"resume-enhancer/internal/bootstrap"
	"resume-enhancer/internal/shared/config"
	"resume-enhancer/internal/shared/server/respond"
	"resume-enhancer/internal/shared/telemetry"
)

// coldStart builds the router once per container; a failed build is reported on every invocation.
type coldStart struct {
	once  sync.Once
	build func() (*gin.Engine, error)
	err   error
	proxy *ginadapter.GinLambdaV2
}

func (c *coldStart) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	c.once.Do(func() {
		router, err := c.build()
		if err != nil {
			c.err = err
			telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": err.Error()})
			return
		}
		c.proxy = ginadapter.NewV2(router)
		telemetry.Info("lambda.ready", nil)
	})
	if c.proxy == nil {
		return unavailable(req), nil
	}
	return c.proxy.ProxyWithContext(ctx, req)
}

func unavailable(req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
		Code:    "service_unavailable",
		Message: "service failed to start",
		Details: map[string]string{"requestId": req.RequestContext.RequestID},
	}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func buildRouter() (*gin.Engine, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func main() {
	cs := &coldStart{build: buildRouter}
	lambda.Start(cs.handle)
}

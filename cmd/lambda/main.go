package main

import (
	"context"
	"fmt"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/ammiranda/department_service/config"
	"github.com/ammiranda/department_service/internal/app"
	"github.com/ammiranda/department_service/internal/lambda"
)

func main() {
	ctx := context.Background()

	provider, err := config.NewProvider(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create config provider:", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, provider, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize:", err)
		os.Exit(1)
	}

	handler := lambda.NewHandler(a.Router)
	awslambda.Start(handler.Handle)
}

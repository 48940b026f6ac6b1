// Command delete is the Lambda behind POST /delete, removal of records and their objects.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/app"
)

func main() {
	a, err := app.Lambda(context.Background(), "delete")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(a.API.Delete())
}

// Command ingest is invoked with the detector's output for one upload and
// writes the catalog record.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/app"
)

func main() {
	a, err := app.Lambda(context.Background(), "ingest")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(a.API.Ingest)
}

// Command notify is the Lambda attached to the media table's stream. It
// emails subscribers whose species appear in inserted or modified records.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/app"
)

func main() {
	a, err := app.Lambda(context.Background(), "notify")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(a.Notifier.Handle)
}

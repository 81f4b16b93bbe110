// Command ordersfn is the aws lambda function serving the orders api behind
// api gateway.
package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/prognoshealth/orderproxy/config"
	"github.com/prognoshealth/orderproxy/orders"
	"github.com/prognoshealth/orderproxy/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed loading config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed building logger: %v", err)
	}
	defer logger.Sync()

	svc, err := store.NewDynamoDBClient(cfg.Region, cfg.Endpoint)
	if err != nil {
		logger.Fatal("failed creating dynamodb client", zap.Error(err))
	}

	fn, err := orders.NewFunction(store.NewDynamoStore(svc, cfg.Table), logger, orders.Paths{
		Health: cfg.HealthPath,
		Order:  cfg.OrderPath,
		Orders: cfg.OrdersPath,
	})
	if err != nil {
		logger.Fatal("failed building router", zap.Error(err))
	}

	logger.Info("starting orders function",
		zap.String("region", cfg.Region),
		zap.String("table", cfg.Table),
	)

	lambda.Start(fn.Handle)
}

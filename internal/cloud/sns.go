package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// AlertPublisher sends gas-threshold notifications to an SNS topic.
type AlertPublisher struct {
	svc      *sns.Client
	topicArn string
}

func NewAlertPublisher(ctx context.Context, region, topicArn string) (*AlertPublisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &AlertPublisher{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

func (p *AlertPublisher) GasThresholdExceeded(ctx context.Context, value, threshold float64, when string) error {
	message := fmt.Sprintf(
		"Methane Gas Alert\n\nReading: %.2f ppm\nThreshold: %.2f ppm\nRecorded: %s\n\nInspect the site ventilation and sensors.",
		value, threshold, when)

	_, err := p.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Subject:  aws.String("WasteSense: gas threshold exceeded"),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

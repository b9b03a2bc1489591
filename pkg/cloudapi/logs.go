package cloudapi

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// ErrNoLogData wraps ResourceNotFound/ResourceInUse from the log API
// — surfaced by the CLI Facade as "no log data", exit 1 (§7).
var ErrNoLogData = errors.New("no log data")

// CreateLogStream creates the per-job log stream inside logGroup,
// ignoring "already exists" so the Log Streamer can be restarted
// idempotently.
func (c *Clients) CreateLogStream(ctx context.Context, logGroup, streamName string) error {
	_, err := c.Logs.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(streamName),
	})
	var exists *types.ResourceAlreadyExistsException
	if errors.As(err, &exists) {
		return nil
	}
	return err
}

// LogEvent is one timestamped line to post.
type LogEvent struct {
	TimestampMillis int64
	Message         string
}

// PutLogEvents posts a batch and returns the next sequence token to
// pass on the following call (§4.7 phase 2).
func (c *Clients) PutLogEvents(ctx context.Context, logGroup, streamName string, events []LogEvent, sequenceToken *string) (*string, error) {
	var input cloudwatchlogs.PutLogEventsInput
	input.LogGroupName = aws.String(logGroup)
	input.LogStreamName = aws.String(streamName)
	input.SequenceToken = sequenceToken
	for _, e := range events {
		input.LogEvents = append(input.LogEvents, types.InputLogEvent{
			Timestamp: aws.Int64(e.TimestampMillis),
			Message:   aws.String(e.Message),
		})
	}
	out, err := c.Logs.PutLogEvents(ctx, &input)
	if err != nil {
		return nil, err
	}
	return out.NextSequenceToken, nil
}

// GetAllLogEvents fetches up to limit events from streamName in one
// call, the most recent ones or, with startFromHead, the first ones,
// for the `log` subcommand (§4.8).
func (c *Clients) GetAllLogEvents(ctx context.Context, logGroup, streamName string, limit int32, startFromHead bool) ([]LogEvent, error) {
	out, err := c.Logs.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(streamName),
		Limit:         aws.Int32(limit),
		StartFromHead: aws.Bool(startFromHead),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		var inUse *types.ResourceInUseException
		if errors.As(err, &notFound) || errors.As(err, &inUse) {
			return nil, ErrNoLogData
		}
		return nil, err
	}
	var events []LogEvent
	for _, e := range out.Events {
		events = append(events, LogEvent{
			TimestampMillis: aws.ToInt64(e.Timestamp),
			Message:         aws.ToString(e.Message),
		})
	}
	return events, nil
}

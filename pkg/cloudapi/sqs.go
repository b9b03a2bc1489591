package cloudapi

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// QueueMessage is the scheduler's single JSON-object wire format
// (§6): {"jobid": "...", "status": "SUCCESS"|"FAILED"}.
type QueueMessage struct {
	JobID         string `json:"jobid"`
	Status        string `json:"status"`
	receiptHandle string
}

// ReceiveTerminalMessages long-polls the queue for up to 10 messages
// with a 2s wait, per §4.6 checkQueue step 1.
func (c *Clients) ReceiveTerminalMessages(ctx context.Context, queueURL string) ([]QueueMessage, error) {
	out, err := c.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     2,
	})
	if err != nil {
		return nil, err
	}
	var messages []QueueMessage
	for _, m := range out.Messages {
		var qm QueueMessage
		if err := json.Unmarshal([]byte(aws.ToString(m.Body)), &qm); err != nil {
			continue
		}
		qm.receiptHandle = aws.ToString(m.ReceiptHandle)
		messages = append(messages, qm)
	}
	return messages, nil
}

// DeleteMessage removes a consumed message from the queue. Receivers
// MUST call this for every message they act on; unknown jobids are
// left in the queue instead (§6).
func (c *Clients) DeleteMessage(ctx context.Context, queueURL string, msg QueueMessage) error {
	_, err := c.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(msg.receiptHandle),
	})
	return err
}

// SendTerminalMessage posts the Runtime Agent's terminal status
// report (§4.7 phase 7).
func (c *Clients) SendTerminalMessage(ctx context.Context, queueURL, jobid, status string) error {
	body, err := json.Marshal(QueueMessage{JobID: jobid, Status: status})
	if err != nil {
		return err
	}
	_, err = c.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}

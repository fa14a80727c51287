package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"sitecheck-backend/internal/models"
)

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(credentialsFile string) (*FCMService, error) {
	return newFCMService(option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials
// This is useful for cloud deployments where you can't upload files easily
func NewFCMServiceFromBase64(credentialsBase64 string) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(option.WithCredentialsJSON(credentialsJSON))
}

func newFCMService(opt option.ClientOption) (*FCMService, error) {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// DefectAlert builds the push payload for a record with defects
func DefectAlert(rec models.InspectionRecord) (title, body string, data map[string]string) {
	equipment := rec.EquipmentID
	if equipment == "" {
		equipment = rec.EquipmentText
	}
	title = "Defects reported"
	body = fmt.Sprintf("%s: %d item(s) need action on %s (%s)", equipment, rec.DefectCount, rec.Date, rec.UserName)
	data = map[string]string{
		"type":         "inspection_defects",
		"record_id":    rec.ID,
		"kind":         string(rec.Kind),
		"equipment_id": rec.EquipmentID,
		"date":         rec.Date,
		"defect_count": strconv.Itoa(rec.DefectCount),
	}
	return title, body, data
}

// SendDefectAlert notifies manager devices about a record with defects
func (s *FCMService) SendDefectAlert(ctx context.Context, tokens []string, rec models.InspectionRecord) error {
	if len(tokens) == 0 {
		return nil
	}
	title, body, data := DefectAlert(rec)
	return s.SendMulticast(ctx, tokens, title, body, data)
}

// SendMulticast sends the same message to multiple tokens
func (s *FCMService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	log.Printf("✅ Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)
	return nil
}

package config

import (
	"context"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretProvider resolves a named secret to its current value.
type SecretProvider interface {
	AccessSecret(ctx context.Context, projectID, name string) (string, error)
}

// GoogleSecretProvider reads secrets from Google Secret Manager using
// application default credentials.
type GoogleSecretProvider struct{}

func (GoogleSecretProvider) AccessSecret(ctx context.Context, projectID, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("error creating secret manager client: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("error accessing secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

// ResolveWebhookURL returns the portal webhook URL, trying the inline
// config value first, then the configured secret, then the
// BITRIX_WEBHOOK_URL environment variable.
func ResolveWebhookURL(ctx context.Context, provider SecretProvider) (string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", err
	}

	if config.Bitrix.WebhookURL != "" {
		return config.Bitrix.WebhookURL, nil
	}

	if config.Bitrix.SecretName != "" && config.Bitrix.ProjectID != "" && provider != nil {
		url, err := provider.AccessSecret(ctx, config.Bitrix.ProjectID, config.Bitrix.SecretName)
		if err != nil {
			return "", err
		}
		if url != "" {
			return url, nil
		}
	}

	if url := os.Getenv("BITRIX_WEBHOOK_URL"); url != "" {
		return url, nil
	}

	return "", fmt.Errorf("error: portal webhook URL not set in configuration")
}

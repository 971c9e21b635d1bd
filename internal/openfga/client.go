package openfga

import (
	"context"
	"fmt"
	"log/slog"

	"serchadmin/internal/config"

	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"
)

// Client wraps the OpenFGA SDK client with the tuple operations the
// permission service needs.
type Client struct {
	fga    *client.OpenFgaClient
	config config.OpenFGAConfig
}

func NewClient(cfg config.OpenFGAConfig) (*Client, error) {
	if !cfg.Enabled {
		slog.Info("OpenFGA is disabled")
		return &Client{config: cfg}, nil
	}

	fgaClient, err := client.NewSdkClient(&client.ClientConfiguration{
		ApiHost: cfg.APIHost,
		StoreId: cfg.StoreID,
		Credentials: &credentials.Credentials{
			Method: credentials.CredentialsMethodApiToken,
			Config: &credentials.Config{
				ApiToken: cfg.APIToken,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenFGA client: %w", err)
	}

	c := &Client{
		fga:    fgaClient,
		config: cfg,
	}

	if err := c.verifyConnection(); err != nil {
		return nil, fmt.Errorf("failed to verify OpenFGA connection: %w", err)
	}

	slog.Info("OpenFGA client initialized successfully",
		"store_id", cfg.StoreID, "model_id", cfg.ModelID)

	return c, nil
}

func (c *Client) verifyConnection() error {
	if !c.config.Enabled {
		return nil
	}

	ctx := context.Background()

	response, err := c.fga.GetStore(ctx).Execute()
	if err != nil {
		return fmt.Errorf("failed to get store: %w", err)
	}

	if response.Id != c.config.StoreID {
		return fmt.Errorf("store ID mismatch: expected %s, got %s",
			c.config.StoreID, response.Id)
	}

	modelResponse, err := c.fga.ReadAuthorizationModel(ctx).Execute()
	if err != nil {
		return fmt.Errorf("failed to read authorization model: %w", err)
	}

	if modelResponse.AuthorizationModel.Id != c.config.ModelID {
		slog.Warn("Authorization model ID mismatch",
			"expected", c.config.ModelID,
			"actual", modelResponse.AuthorizationModel.Id)
	}

	return nil
}

func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.fga != nil
}

// CheckPermission checks if an admin has a relation to an object.
func (c *Client) CheckPermission(ctx context.Context, adminID, relation, objectType, objectID string) (bool, error) {
	if !c.config.Enabled {
		return true, nil // Pass-through when disabled
	}

	body := client.ClientCheckRequest{
		User:     fmt.Sprintf("admin:%s", adminID),
		Relation: relation,
		Object:   fmt.Sprintf("%s:%s", objectType, objectID),
	}

	data, err := c.fga.Check(ctx).Body(body).Execute()
	if err != nil {
		slog.Error("OpenFGA check failed",
			"admin", adminID,
			"relation", relation,
			"object", fmt.Sprintf("%s:%s", objectType, objectID),
			"error", err)
		return false, err
	}

	return data.GetAllowed(), nil
}

// WriteTuple creates a relationship tuple.
func (c *Client) WriteTuple(ctx context.Context, adminID, relation, objectType, objectID string) error {
	if !c.config.Enabled {
		return nil // Pass-through when disabled
	}

	body := client.ClientWriteRequest{
		Writes: []client.ClientTupleKey{
			{
				User:     fmt.Sprintf("admin:%s", adminID),
				Relation: relation,
				Object:   fmt.Sprintf("%s:%s", objectType, objectID),
			},
		},
	}

	if _, err := c.fga.Write(ctx).Body(body).Execute(); err != nil {
		slog.Error("OpenFGA write failed",
			"admin", adminID,
			"relation", relation,
			"object", fmt.Sprintf("%s:%s", objectType, objectID),
			"error", err)
		return err
	}
	return nil
}

// DeleteTuple removes a relationship tuple.
func (c *Client) DeleteTuple(ctx context.Context, adminID, relation, objectType, objectID string) error {
	if !c.config.Enabled {
		return nil // Pass-through when disabled
	}

	body := client.ClientWriteRequest{
		Deletes: []client.ClientTupleKeyWithoutCondition{
			{
				User:     fmt.Sprintf("admin:%s", adminID),
				Relation: relation,
				Object:   fmt.Sprintf("%s:%s", objectType, objectID),
			},
		},
	}

	if _, err := c.fga.Write(ctx).Body(body).Execute(); err != nil {
		slog.Error("OpenFGA delete failed",
			"admin", adminID,
			"relation", relation,
			"object", fmt.Sprintf("%s:%s", objectType, objectID),
			"error", err)
		return err
	}
	return nil
}

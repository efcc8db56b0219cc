package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := InitFirebase(context.Background(), "", logger)
	assert.ErrorContains(t, err, "not provided")

	_, err = InitFirebase(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	assert.ErrorContains(t, err, "not found")
}

func TestInitAuthClientFallsBackToJWT(t *testing.T) {
	logger, hook := test.NewNullLogger()

	client, err := InitAuthClient(context.Background(), "", "secret", logger)
	assert.NoError(t, err)
	assert.Nil(t, client)
	assert.Contains(t, hook.LastEntry().Message, "using JWT")

	_, err = InitAuthClient(context.Background(), "", "", logger)
	assert.ErrorContains(t, err, "must be set")

	_, err = InitAuthClient(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "secret", logger)
	assert.ErrorContains(t, err, "not found")
}

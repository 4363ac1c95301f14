package infrastructure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/infralog"
	"github.com/coreidentity/authcore/pkg/infrastructure"
)

func TestNewAnalyticsExporter_DisabledReturnsNilWithoutTouchingCloudSDKs(t *testing.T) {
	log := infralog.NewTextLogger("info", "text")

	exp, err := infrastructure.NewAnalyticsExporter(context.Background(), config.AnalyticsConfig{Enabled: false}, log)
	require.NoError(t, err)
	require.Nil(t, exp)
}

package eventsink

import (
	"context"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

// AllowAllVerifier never vetoes; the default when no contract verifier
// is configured.
type AllowAllVerifier struct{}

// Verify satisfies commit.ContractVerifier.
func (AllowAllVerifier) Verify(context.Context, model.TabularID, *model.TableMetadata, *model.TableMetadata) error {
	return nil
}

var _ commit.ContractVerifier = AllowAllVerifier{}

package commit

import (
	"encoding/json"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

// JSONMetadataEncoder renders TableMetadata as the Iceberg
// metadata.json wire format. It is the default MetadataEncoder; a
// format-version-specific encoder could replace it without touching
// the engine.
type JSONMetadataEncoder struct{}

func (JSONMetadataEncoder) Encode(meta *model.TableMetadata) ([]byte, error) {
	return json.MarshalIndent(meta, "", "  ")
}

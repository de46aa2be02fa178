package transit

import (
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/velivert/velivert/internal/models"
)

const gtfsRealtimeVersion = "2.0"

// Export formats
const (
	FormatProtobuf = "protobuf"
	FormatJSON     = "json"
)

// Labeler maps a bike id to its display label
type Labeler interface {
	Resolve(bikeID string) string
}

// VehicleFeedOptions controls BuildVehicleFeed
type VehicleFeedOptions struct {
	// IncludeDisabled exports disabled bikes too
	IncludeDisabled bool
}

// BuildVehicleFeed converts a snapshot into a GTFS-Realtime full dataset
// with one VehiclePosition per positioned bike. Docked bikes are reported
// as STOPPED_AT their station.
func BuildVehicleFeed(snap models.Snapshot, labels Labeler, opts VehicleFeedOptions) *gtfs.FeedMessage {
	ts := snap.FetchedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	timestamp := uint64(ts.Unix())

	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(timestamp),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(snap.Bikes)),
	}

	for _, bike := range snap.Bikes {
		if bike.Position == nil {
			continue
		}
		if bike.IsDisabled && !opts.IncludeDisabled {
			continue
		}

		label := bike.ID
		if labels != nil {
			label = labels.Resolve(bike.ID)
		}

		vehicle := &gtfs.VehiclePosition{
			Vehicle: &gtfs.VehicleDescriptor{
				Id:    proto.String(bike.ID),
				Label: proto.String(label),
			},
			Position: &gtfs.Position{
				Latitude:  proto.Float32(float32(bike.Position.Lat)),
				Longitude: proto.Float32(float32(bike.Position.Lon)),
			},
			Timestamp: proto.Uint64(timestamp),
		}
		if bike.StationID != "" {
			vehicle.StopId = proto.String(bike.StationID)
			vehicle.CurrentStatus = gtfs.VehiclePosition_STOPPED_AT.Enum()
		}

		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id:      proto.String(bike.ID),
			Vehicle: vehicle,
		})
	}

	return feed
}

// EncodeFeed serializes feed as binary protobuf or protojson and returns
// the matching content type.
func EncodeFeed(feed *gtfs.FeedMessage, format string) ([]byte, string, error) {
	switch format {
	case "", FormatProtobuf:
		b, err := proto.Marshal(feed)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling feed: %w", err)
		}
		return b, "application/x-protobuf", nil
	case FormatJSON:
		b, err := protojson.MarshalOptions{Indent: "  "}.Marshal(feed)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling feed: %w", err)
		}
		return b, "application/json", nil
	}
	return nil, "", fmt.Errorf("unsupported feed format %q", format)
}

package dto_test

import (
	"testing"

	"tripmarket/internal/domains/trip/model"
	"tripmarket/internal/domains/trip/model/dto"
	gModel "tripmarket/shared/model"
	"tripmarket/shared/timezone"

	"github.com/stretchr/testify/assert"
)

func TestCreateTripRequest_ToModel(t *testing.T) {
	req := dto.CreateTripRequest{
		AgencyID:     "550e8400-e29b-41d4-a716-446655440000",
		Name:         "Bali Escape",
		Price:        1500000,
		Destinations: []string{"Ubud", "Kuta"},
		MaxCapacity:  12,
	}

	userID := "auth0|owner-1"
	trip := req.ToModel(userID, "4242")

	assert.NotEmpty(t, trip.ID, "expected ID to be generated")
	assert.Equal(t, req.AgencyID, trip.AgencyID)
	assert.Equal(t, req.Name, trip.Name)
	assert.Equal(t, req.Price, trip.Price)
	assert.Equal(t, req.MaxCapacity, trip.MaxCapacity)
	assert.Zero(t, trip.CurrentBookings)
	assert.Equal(t, model.StatusActive, trip.Status)
	assert.Equal(t, model.TransportModeUnspecified, trip.TransportMode, "transport mode defaults when omitted")

	if assert.NotNil(t, trip.TripOTP) {
		assert.Equal(t, "4242", *trip.TripOTP)
	}

	assert.Equal(t, userID, trip.CreatedBy)
	assert.Equal(t, userID, trip.ModifiedBy)
	assert.False(t, trip.CreatedAt.IsZero(), "expected CreatedAt to be set")
	assert.False(t, trip.ModifiedAt.IsZero(), "expected ModifiedAt to be set")
}

func TestCreateTripRequest_ToModelKeepsTransportMode(t *testing.T) {
	req := dto.CreateTripRequest{
		AgencyID:      "550e8400-e29b-41d4-a716-446655440000",
		Name:          "Java Overland",
		Destinations:  []string{"Bromo"},
		MaxCapacity:   6,
		TransportMode: model.TransportModeBus,
	}

	trip := req.ToModel("auth0|owner-1", "1234")

	assert.Equal(t, model.TransportModeBus, trip.TransportMode)
}

func TestTripResponse_FromModel(t *testing.T) {
	now := timezone.Now()
	code := "9876"

	tripModel := model.Trip{
		ID:              "trip-1",
		AgencyID:        "agency-1",
		Name:            "Komodo Sail",
		Price:           2750000,
		Destinations:    []string{"Labuan Bajo"},
		TransportMode:   model.TransportModeBoat,
		MaxCapacity:     8,
		CurrentBookings: 3,
		Status:          model.StatusActive,
		TripOTP:         &code,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  "auth0|owner-1",
			ModifiedBy: "auth0|owner-1",
		},
	}

	images := []model.TripImage{
		{ID: "img-1", TripID: "trip-1", URL: "https://cdn.example/img-1.jpg", FileName: "boat.jpg"},
	}

	var response dto.TripResponse
	response.FromModel(tripModel, images)

	assert.Equal(t, tripModel.ID, response.ID)
	assert.Equal(t, tripModel.AgencyID, response.AgencyID)
	assert.Equal(t, tripModel.Name, response.Name)
	assert.Equal(t, "9876", response.ConfirmationCode)
	assert.Equal(t, tripModel.MaxCapacity, response.MaxCapacity)
	assert.Equal(t, tripModel.CurrentBookings, response.CurrentBookings)

	if assert.Len(t, response.Images, 1) {
		assert.Equal(t, "img-1", response.Images[0].ID)
		assert.Equal(t, "boat.jpg", response.Images[0].FileName)
	}
}

func TestTripResponse_FromModelWithoutCode(t *testing.T) {
	tripModel := model.Trip{
		ID:       "trip-1",
		AgencyID: "agency-1",
		Name:     "Komodo Sail",
	}

	var response dto.TripResponse
	response.FromModel(tripModel, nil)

	assert.Empty(t, response.ConfirmationCode)
	assert.Empty(t, response.Images)
}

func TestGetTripsResponse_FromModels(t *testing.T) {
	now := timezone.Now()
	meta := gModel.Metadata{CreatedAt: now, ModifiedAt: now}

	models := []model.Trip{
		{ID: "trip-1", Name: "Bali Escape", Metadata: meta},
		{ID: "trip-2", Name: "Java Overland", Metadata: meta},
	}

	imagesByTrip := map[string][]model.TripImage{
		"trip-1": {{ID: "img-1", TripID: "trip-1"}},
	}

	var response dto.GetTripsResponse
	response.FromModels(models, imagesByTrip, 25, 10)

	assert.Equal(t, 25, response.TotalData)
	assert.Equal(t, 3, response.TotalPage)

	if assert.Len(t, response.Trips, 2) {
		assert.Len(t, response.Trips[0].Images, 1)
		assert.Empty(t, response.Trips[1].Images)
	}
}

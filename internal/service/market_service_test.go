package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/mocks"
	"agrimarket/internal/model"
	"agrimarket/internal/notify"
	"agrimarket/internal/pricing"
	"agrimarket/internal/translate"
)

func newPriceBook(t *testing.T) pricing.PriceBook {
	t.Helper()
	book, err := pricing.NewCSVBook(filepath.Join(t.TempDir(), "market_prices.csv"))
	require.NoError(t, err)
	require.NoError(t, pricing.SeedDefaults(context.Background(), book))
	return book
}

func TestMarketService_Lookup(t *testing.T) {
	svc := NewMarketService(newPriceBook(t), nil, nil)
	ctx := context.Background()

	wheat, err := svc.GetPrice(ctx, " Wheat ")
	require.NoError(t, err)
	require.Equal(t, 2275.0, wheat.PricePerQuintal)
	require.Equal(t, 22.75, wheat.PricePerKg)
	require.Equal(t, pricing.UnitQuintal, wheat.Unit)

	_, err = svc.GetPrice(ctx, "saffron")
	require.ErrorIs(t, err, marketerrors.ErrNotFound)

	all, err := svc.ListPrices(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(pricing.DefaultPrices))
}

func TestMarketService_UpdatePrice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	events := &recordingPublisher{}
	svc := NewMarketService(newPriceBook(t), events, notify.NewMessenger(notifier, translate.Noop{}, 0))
	ctx := context.Background()

	agent := model.Actor{UserID: 7, Role: model.RoleAgent, Name: "Field Agent", Email: "agent@example.com"}

	tests := []struct {
		name        string
		actor       model.Actor
		crop        string
		req         UpdatePriceRequest
		expectedErr error
	}{
		{name: "buyer", actor: model.Actor{UserID: 3, Role: model.RoleBuyer}, crop: "rice", req: UpdatePriceRequest{PricePerQuintal: 2300}, expectedErr: marketerrors.ErrForbidden},
		{name: "farmer", actor: model.Actor{UserID: 4, Role: model.RoleFarmer}, crop: "rice", req: UpdatePriceRequest{PricePerQuintal: 2300}, expectedErr: marketerrors.ErrForbidden},
		{name: "blank_crop", actor: agent, crop: " ", req: UpdatePriceRequest{PricePerQuintal: 2300}, expectedErr: marketerrors.ErrValidation},
		{name: "zero_price", actor: agent, crop: "rice", req: UpdatePriceRequest{PricePerQuintal: 0}, expectedErr: marketerrors.ErrValidation},
		{name: "unknown_trend", actor: agent, crop: "rice", req: UpdatePriceRequest{PricePerQuintal: 2300, Trend: "sideways"}, expectedErr: marketerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.UpdatePrice(ctx, tt.actor, tt.crop, &req)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
	require.Empty(t, events.events)

	notifier.EXPECT().Send(gomock.Any(), "+919876543210", gomock.Any()).Return(notify.Receipt{ID: "sms-1"}, nil)
	got, err := svc.UpdatePrice(ctx, agent, "Rice", &UpdatePriceRequest{PricePerQuintal: 2300, Trend: "up", NotifyPhone: "+919876543210"})
	require.NoError(t, err)
	require.Equal(t, "rice", got.Crop)
	require.Equal(t, 23.0, got.PricePerKg)
	require.Equal(t, pricing.TrendUp, got.Trend)
	require.Equal(t, []string{EventPriceUpdated}, events.events)

	// new crops are added on first update
	added, err := svc.UpdatePrice(ctx, agent, "saffron", &UpdatePriceRequest{PricePerQuintal: 150000})
	require.NoError(t, err)
	require.Equal(t, pricing.TrendStable, added.Trend)

	stored, err := svc.GetPrice(ctx, "saffron")
	require.NoError(t, err)
	require.Equal(t, 1500.0, stored.PricePerKg)
}

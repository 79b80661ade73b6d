package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/debt-engine/internal/domain"
	customError "github.com/segyhp/debt-engine/pkg/errors"
)

func TestAddPlatform(t *testing.T) {
	svc, _, _ := newTestService(t)

	platforms, err := svc.AddPlatform(context.Background(), "  JD Baitiao ")
	require.NoError(t, err)
	assert.Equal(t, "JD Baitiao", platforms[len(platforms)-1])

	_, err = svc.AddPlatform(context.Background(), "JD Baitiao")
	assert.ErrorIs(t, err, customError.ErrPlatformExists)

	_, err = svc.AddPlatform(context.Background(), domain.OtherPlatform)
	assert.ErrorIs(t, err, customError.ErrPlatformProtected)

	_, err = svc.AddPlatform(context.Background(), "   ")
	assert.ErrorIs(t, err, customError.ErrValidation)

	assert.Len(t, svc.Platforms(context.Background()), len(domain.DefaultPlatforms)+1)
}

func TestDeletePlatform(t *testing.T) {
	svc, _, _ := newTestService(t)

	platforms, err := svc.DeletePlatform(context.Background(), "BeiBei")
	require.NoError(t, err)
	assert.NotContains(t, platforms, "BeiBei")
	assert.Len(t, platforms, len(domain.DefaultPlatforms)-1)

	_, err = svc.DeletePlatform(context.Background(), "BeiBei")
	assert.ErrorIs(t, err, customError.ErrPlatformNotFound)

	_, err = svc.DeletePlatform(context.Background(), domain.OtherPlatform)
	assert.ErrorIs(t, err, customError.ErrPlatformProtected)
	assert.Contains(t, svc.Platforms(context.Background()), domain.OtherPlatform)
}

func TestDeletePlatform_Referenced(t *testing.T) {
	svc, _, _ := newTestService(t)
	createNextMonth(t, svc, "100", "0") // HuaBei
	createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Platform: "CreditCard", Amount: dec("100"), Terms: 1, BorrowDate: "2024-04-01",
	})

	for _, name := range []string{"HuaBei", "CreditCard"} {
		_, err := svc.DeletePlatform(context.Background(), name)
		assert.ErrorIs(t, err, customError.ErrPlatformInUse, name)
		assert.Contains(t, svc.Platforms(context.Background()), name)
	}
}

func TestSetMinPaymentRate(t *testing.T) {
	svc, _, _ := newTestService(t)

	rate, err := svc.SetMinPaymentRate(context.Background(), dec("0.123456"))
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.1235")))
	assert.True(t, svc.MinPaymentRate(context.Background()).Equal(dec("0.1235")))

	for _, invalid := range []string{"0.04", "0.31", "0", "5"} {
		_, err := svc.SetMinPaymentRate(context.Background(), dec(invalid))
		assert.ErrorIs(t, err, customError.ErrValidation, invalid)
	}
	assert.True(t, svc.MinPaymentRate(context.Background()).Equal(dec("0.1235")))
}

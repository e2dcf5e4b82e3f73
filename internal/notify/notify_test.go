package notify

import (
	"context"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentoo/internal/domain"
)

var (
	owner  = domain.User{ID: "u1", Name: "Olga", Email: "olga@example.com"}
	renter = domain.User{ID: "u2", Name: "Rick", Email: "rick@example.com"}
	item   = domain.Item{ID: "i1", Title: "Bicycle"}
)

func TestNew_WithoutKeyLogsOnly(t *testing.T) {
	n := New("", "noreply@rentoo.local", "Rentoo")
	assert.IsType(t, LogNotifier{}, n)
	assert.NoError(t, n.RentalRequested(context.Background(), owner, renter, item, domain.Rental{}))

	assert.IsType(t, &SendGridNotifier{}, New("SG.key", "noreply@rentoo.local", "Rentoo"))
}

func TestRequestedMail(t *testing.T) {
	rental := domain.Rental{StartDate: "2024-06-01", EndDate: "2024-06-03", TotalPrice: 1500}
	m := requestedMail(mail.NewEmail("Rentoo", "noreply@rentoo.local"), owner, renter, item, rental)

	assert.Equal(t, "New rental request for Bicycle", m.Subject)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "olga@example.com", m.Personalizations[0].To[0].Address)
	require.NotEmpty(t, m.Content)
	assert.Contains(t, m.Content[0].Value, "Rick wants to rent your item 'Bicycle' from 2024-06-01 to 2024-06-03")
}

func TestDecidedMail(t *testing.T) {
	from := mail.NewEmail("Rentoo", "noreply@rentoo.local")

	confirmed := decidedMail(from, renter, owner, item, domain.Rental{Status: domain.RentalStatusConfirmed})
	assert.Equal(t, "Your rental of Bicycle was confirmed", confirmed.Subject)
	assert.Equal(t, "rick@example.com", confirmed.Personalizations[0].To[0].Address)

	rejected := decidedMail(from, renter, owner, item, domain.Rental{Status: domain.RentalStatusCancelled})
	assert.Equal(t, "Your rental of Bicycle was rejected", rejected.Subject)
}

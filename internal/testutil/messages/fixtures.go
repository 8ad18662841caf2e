package messages

// Fixture is a named, realistic message used across tests.
type Fixture struct {
	Name   string
	Sender string
	Body   string
}

// Predefined fixtures for common scenarios.
var (
	// FixtureAmazonDebit is a card debit with a trailing available balance.
	FixtureAmazonDebit = Fixture{
		Name:   "amazon-debit",
		Sender: "VM-SBIINB",
		Body:   "Rs.500 debited from account at AMAZON on 01-Jan-23. Avbl Bal: Rs.10,000.00",
	}

	// FixtureCredit is a plain credit to a masked account.
	FixtureCredit = Fixture{
		Name:   "salary-credit",
		Sender: "AD-HDFCBK",
		Body:   "INR 2,000.00 credited to A/c XX1234 on 02-Feb-24",
	}

	// FixtureMpesaSend is an M-Pesa transfer with a confirmation code.
	FixtureMpesaSend = Fixture{
		Name:   "mpesa-send",
		Sender: "MPESA",
		Body: "QFT12ABC34 Confirmed. Ksh1,000.00 sent to JOHN DOE 0712345678 on 1/2/24 at 10:30 AM. " +
			"New M-PESA balance is Ksh5,000.00. Transaction cost, Ksh0.00.",
	}

	// FixtureBalanceOnly reports a balance and nothing else.
	FixtureBalanceOnly = Fixture{
		Name:   "balance-only",
		Sender: "VM-ICICIB",
		Body:   "Dear Customer, your account balance for account ending 9876 is Rs.25000.00 as on 01-Jan-23.",
	}

	// FixturePromo is marketing text with no financial vocabulary.
	FixturePromo = Fixture{
		Name:   "promo",
		Sender: "PROMO",
		Body:   "Get 50% off today!",
	}

	// FixtureOTP has financial words but is a one-time code.
	FixtureOTP = Fixture{
		Name:   "otp",
		Sender: "VM-HDFCBK",
		Body:   "Your OTP for transaction of Rs.1,500.00 is 482913. Do not share it.",
	}
)

// All lists every fixture in a stable order.
func All() []Fixture {
	return []Fixture{
		FixtureAmazonDebit,
		FixtureCredit,
		FixtureMpesaSend,
		FixtureBalanceOnly,
		FixturePromo,
		FixtureOTP,
	}
}

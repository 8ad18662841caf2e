package pattern

// Building blocks shared by the built-in rules. Amount and balance rules
// have a single capture group holding the numeral.
const (
	numeral      = `(\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`
	currencyWord = `(?:\b(?:rs|inr|ksh|kes|usd|eur|gbp)\.?|[₹$€£])`
	currencyTail = `(?:rs|inr|ksh|kes|usd|eur|gbp)\b`
	merchantName = `(\p{Lu}[\p{L}\p{N}&'.\-]*(?:[ \t]+[\p{Lu}\p{N}][\p{L}\p{N}&'.\-]*){0,4})`
	dateTime     = `(?:,?\s*(?:at\s+)?(?P<H>\d{1,2}):(?P<M>\d{2})(?::(?P<S>\d{2}))?\s*(?P<p>[ap]\.?m\.?)?)?`
	monthName    = `(?P<mon>jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`
)

// DefaultKeywords returns the built-in vocabularies.
func DefaultKeywords() Keywords {
	return Keywords{
		Debit: []string{
			"debited", "debit", "withdrawn", "spent", "paid", "purchase", "charged", "sent",
		},
		Credit: []string{
			"credited", "credit", "received", "deposited", "refund", "cashback", "salary",
		},
		Balance: []string{
			"balance", "bal", "avbl", "available balance", "current balance", "account balance", "new balance",
		},
		Amount: []string{
			"rs", "inr", "usd", "amount", "amt", "ksh", "kes",
		},
		General: []string{
			"transaction", "txn", "a/c", "upi", "m-pesa", "mpesa",
		},
		Proximity: []string{
			"debited", "credited", "paid", "sent", "received", "spent", "withdrawn",
			"deposited", "charged", "transferred", "purchase",
		},
	}
}

// GenericRules are the institution-independent fallbacks.
func GenericRules() []Rule {
	return []Rule{
		// Amounts.
		{Name: "amount_labelled", Field: FieldAmount, Confidence: 0.7,
			Regex: `\b(?:amount|amt)\b\.?\s*(?:of\s+)?[:\-]?\s*(?:` + currencyWord + `\s*)?` + numeral},
		{Name: "amount_currency_prefix", Field: FieldAmount, Confidence: 0.6,
			Regex: currencyWord + `\s*` + numeral},
		{Name: "amount_currency_suffix", Field: FieldAmount, Confidence: 0.55,
			Regex: `\b` + numeral + `\s*` + currencyTail},
		{Name: "amount_slash_dash", Field: FieldAmount, Confidence: 0.5,
			Regex: `\b` + numeral + `\s*/-`},
		{Name: "amount_bare", Field: FieldAmount, Confidence: 0.2,
			Regex: `\b` + numeral + `\b`},

		// Balances.
		{Name: "balance_labelled", Field: FieldBalance, Confidence: 0.4,
			Regex: `\b(?:(?:avbl|avl|available|avail|current|new|total|clear)\.?\s*)?(?:bal|balance)\b\.?\s*(?:is\s*)?[:\-]?\s*(?:` + currencyWord + `\s*)?` + numeral},
		{Name: "balance_is", Field: FieldBalance, Confidence: 0.4,
			Regex: `\b(?:bal|balance)\b.{0,40}?\bis\s*(?:` + currencyWord + `\s*)?` + numeral},

		// Accounts, best first.
		{Name: "account_full", Field: FieldAccount, Confidence: 0.9,
			Regex: `\b(?:a/c|acct|account|ac)\b(?:\s*(?:no|number|num)\b\.?)?[\s:#.]*(\d{6,20})\b`},
		{Name: "account_masked", Field: FieldAccount, Confidence: 0.7,
			Regex: `(?:[x*]{2,}|\.{2,})[-\s]?(\d{4})\b`},
		{Name: "account_ending", Field: FieldAccount, Confidence: 0.7,
			Regex: `\bending(?:\s+(?:with|in))?\s*[:#]?\s*(\d{4})\b`},
		{Name: "account_upi", Field: FieldAccount, Confidence: 0.6,
			Regex: `\b([a-z0-9._\-]{2,}@[a-z]{2,})\b`},
		{Name: "account_paybill", Field: FieldAccount, Confidence: 0.6,
			Regex: `\b(?:paybill|till)\s*(?:no\.?|number)?\s*[:#]?\s*(\d{5,7})\b`},
		{Name: "account_fragment", Field: FieldAccount, Confidence: 0.4,
			Regex: `\b(?:a/c|acct|account|ac|card)\b(?:\s*no\b\.?)?[\s:#.]*(\d{3,5})\b`},

		// Merchants. The name must be capitalized; lead-in words are not.
		{Name: "merchant_spent_at", Field: FieldMerchant, Confidence: 0.8, CaseSensitive: true,
			Regex: `(?i:\b(?:spent|paid|purchase[d]?|used)\b[^.]{0,40}?\bat)\s+` + merchantName},
		{Name: "merchant_label", Field: FieldMerchant, Confidence: 0.8, CaseSensitive: true,
			Regex: `(?i:\b(?:merchant|payee|beneficiary)\s*[:\-])\s*` + merchantName},
		{Name: "merchant_paid_to", Field: FieldMerchant, Confidence: 0.75, CaseSensitive: true,
			Regex: `(?i:\b(?:paid|sent|transferred)\s+to)\s+` + merchantName},
		{Name: "merchant_received_from", Field: FieldMerchant, Confidence: 0.75, CaseSensitive: true,
			Regex: `(?i:\breceived\b[^.]{0,40}?\bfrom)\s+` + merchantName},
		{Name: "merchant_at", Field: FieldMerchant, Confidence: 0.7, CaseSensitive: true,
			Regex: `(?i:\bat)\s+` + merchantName},
		{Name: "merchant_info", Field: FieldMerchant, Confidence: 0.65, CaseSensitive: true,
			Regex: `(?i:\binfo\s*[:\-])\s*` + merchantName},
		{Name: "merchant_to", Field: FieldMerchant, Confidence: 0.6, CaseSensitive: true,
			Regex: `(?i:\bto)\s+` + merchantName},
		{Name: "merchant_from", Field: FieldMerchant, Confidence: 0.5, CaseSensitive: true,
			Regex: `(?i:\bfrom)\s+` + merchantName},

		// Dates.
		{Name: "date_iso", Field: FieldDate, Confidence: 0.9,
			Regex: `\b(?P<y>\d{4})-(?P<m>\d{1,2})-(?P<d>\d{1,2})(?:[T\s](?P<H>\d{1,2}):(?P<M>\d{2})(?::(?P<S>\d{2}))?)?`},
		{Name: "date_day_month_name", Field: FieldDate, Confidence: 0.9,
			Regex: `\b(?P<d>\d{1,2})(?:st|nd|rd|th)?[-\s/.]?` + monthName + `[-\s/,]*(?P<y>\d{4}|\d{2})\b` + dateTime},
		{Name: "date_month_name_day", Field: FieldDate, Confidence: 0.85,
			Regex: `\b` + monthName + `\s+(?P<d>\d{1,2})(?:st|nd|rd|th)?,?\s+(?P<y>\d{4})\b` + dateTime},
		{Name: "date_numeric_dmy", Field: FieldDate, Confidence: 0.85,
			Regex: `\b(?P<d>\d{1,2})[/\-.](?P<m>\d{1,2})[/\-.](?P<y>\d{4}|\d{2})\b` + dateTime},

		// References. Values must contain a digit.
		{Name: "reference_mpesa_code", Field: FieldReference, Confidence: 0.9, CaseSensitive: true,
			Regex: `^([A-Z0-9]{10})\s+(?i:confirmed)`},
		{Name: "reference_labelled", Field: FieldReference, Confidence: 0.8,
			Regex: `\b(?:ref(?:erence)?|txn|utr|rrn|transaction\s+id|trans\s+id)\b\.?\s*(?:no\b\.?|id\b|#|number\b)?\s*[:\-#]?\s*([a-z0-9]{6,22})\b`},
	}
}

// DefaultInstitutions returns the built-in institution records.
func DefaultInstitutions() []Institution {
	return []Institution{
		{
			Name:     "SBI",
			Currency: "INR",
			Senders:  []string{`(?:^|-)(?:SBI|SBIINB|SBIPSG|ATMSBI|CBSSBI|SBIUPI)$`},
			Keywords: []string{"state bank", "sbi"},
			Rules: []Rule{
				{Name: "sbi_amount", Field: FieldAmount, Confidence: 0.8,
					Regex: `\b(?:rs|inr)\.?\s*` + numeral + `\s+(?:has\s+been\s+)?(?:debited|credited|withdrawn)`},
				{Name: "sbi_account", Field: FieldAccount, Confidence: 0.75,
					Regex: `\ba/c\s*(?:no\.?\s*)?[x*]*(\d{4})\b`},
			},
		},
		{
			Name:     "HDFC",
			Currency: "INR",
			Senders:  []string{`(?:^|-)HDFCBK$`, `(?:^|-)HDFCBN$`},
			Keywords: []string{"hdfc bank", "hdfc"},
			Rules: []Rule{
				{Name: "hdfc_amount", Field: FieldAmount, Confidence: 0.8,
					Regex: `\b(?:rs|inr)\.?\s*` + numeral + `\s+(?:debited|credited|spent)`},
				{Name: "hdfc_account", Field: FieldAccount, Confidence: 0.75,
					Regex: `\ba/c\s*(?:no\.?\s*)?[x*]*(\d{4})\b`},
				{Name: "hdfc_merchant_info", Field: FieldMerchant, Confidence: 0.85, CaseSensitive: true,
					Regex: `(?i:\binfo\s*[:\-])\s*` + merchantName},
			},
		},
		{
			Name:     "ICICI",
			Currency: "INR",
			Senders:  []string{`(?:^|-)ICICIB$`, `(?:^|-)ICICIT$`},
			Keywords: []string{"icici"},
			Rules: []Rule{
				{Name: "icici_amount", Field: FieldAmount, Confidence: 0.8,
					Regex: `\b(?:debited|credited)\s+(?:with|for)\s+(?:rs|inr)\.?\s*` + numeral},
				{Name: "icici_account", Field: FieldAccount, Confidence: 0.75,
					Regex: `\b(?:acct|account)\s+[x*]*(\d{4})\b`},
			},
		},
		{
			Name:     "AXIS",
			Currency: "INR",
			Senders:  []string{`(?:^|-)AXISBK$`, `(?:^|-)AXISBN$`},
			Keywords: []string{"axis bank"},
			Rules: []Rule{
				{Name: "axis_amount", Field: FieldAmount, Confidence: 0.8,
					Regex: `\b(?:inr|rs)\.?\s*` + numeral + `\s+(?:debited|credited|spent)`},
			},
		},
		{
			Name:     "MPESA",
			Currency: "KES",
			Senders:  []string{`^M-?PESA$`, `^SAFARICOM$`},
			Keywords: []string{"m-pesa", "mpesa"},
			Rules: []Rule{
				{Name: "mpesa_amount", Field: FieldAmount, Confidence: 0.85,
					Regex: `\b(?:ksh|kes)\.?\s?` + numeral + `\s+(?:sent|paid|received|withdrawn|deposited)`},
				{Name: "mpesa_amount_received", Field: FieldAmount, Confidence: 0.85,
					Regex: `\b(?:you\s+have\s+)?received\s+(?:ksh|kes)\.?\s?` + numeral},
				{Name: "mpesa_balance", Field: FieldBalance, Confidence: 0.9,
					Regex: `\bnew\s+m-?pesa\s+balance\s+is\s+(?:ksh|kes)\.?\s?` + numeral},
				{Name: "mpesa_merchant_to", Field: FieldMerchant, Confidence: 0.85, CaseSensitive: true,
					Regex: `(?i:\b(?:sent|paid)\s+to)\s+` + merchantName},
				{Name: "mpesa_merchant_from", Field: FieldMerchant, Confidence: 0.85, CaseSensitive: true,
					Regex: `(?i:\bfrom)\s+` + merchantName},
				{Name: "mpesa_reference", Field: FieldReference, Confidence: 0.95, CaseSensitive: true,
					Regex: `^([A-Z0-9]{10})\s+(?i:confirmed)`},
			},
		},
	}
}

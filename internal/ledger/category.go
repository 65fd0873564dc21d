package ledger

// TxType classifies a transaction.
type TxType string

const (
	TypeExpense TxType = "expense"
	TypeIncome  TxType = "income"
	TypeSaving  TxType = "saving"
)

// ValidType reports whether t is one of the supported transaction types.
func ValidType(t TxType) bool {
	switch t {
	case TypeExpense, TypeIncome, TypeSaving:
		return true
	}
	return false
}

// Category is a named bucket with a fixed transaction type.
type Category struct {
	Name string
	Type TxType
}

// categories is the process-wide registry. Declaration order is significant:
// keyboards are rendered in this order, so it must stay stable.
var categories = []Category{
	{Name: "Entertainment", Type: TypeExpense},
	{Name: "Side Hustle", Type: TypeIncome},
	{Name: "Personal Care", Type: TypeExpense},
	{Name: "Food & Dining", Type: TypeExpense},
	{Name: "Gifts & Donations", Type: TypeExpense},
	{Name: "Groceries", Type: TypeExpense},
	{Name: "Subscriptions", Type: TypeExpense},
	{Name: "Shopping", Type: TypeExpense},
	{Name: "Emergency Fund", Type: TypeSaving},
	{Name: "Business", Type: TypeIncome},
	{Name: "Rent/Mortgage", Type: TypeExpense},
	{Name: "Education Fund", Type: TypeSaving},
	{Name: "Fuel", Type: TypeExpense},
	{Name: "Vacation Fund", Type: TypeSaving},
	{Name: "Health & Medical", Type: TypeExpense},
	{Name: "Insurance", Type: TypeExpense},
	{Name: "Other Income", Type: TypeIncome},
	{Name: "Other Expenses", Type: TypeExpense},
	{Name: "Freelance", Type: TypeIncome},
	{Name: "Investment", Type: TypeSaving},
	{Name: "Retirement", Type: TypeSaving},
	{Name: "Transportation", Type: TypeExpense},
	{Name: "Utilities", Type: TypeExpense},
	{Name: "Salary", Type: TypeIncome},
}

// Categories returns the full registry in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoriesOfType returns the categories matching t, preserving declaration
// order. An unknown type yields an empty slice, not an error.
func CategoriesOfType(t TxType) []Category {
	var out []Category
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// CategoryOfType looks up a category by name within the subset matching t.
func CategoryOfType(t TxType, name string) (Category, bool) {
	for _, c := range categories {
		if c.Type == t && c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

package storefront

// Product is a catalog entry. The catalog never changes at runtime.
type Product struct {
	ID          int
	Name        string
	Price       float64
	Icon        string
	Description string
}

// Catalog returns the ocean and beach gear the storefront sells.
func Catalog() []Product {
	return []Product{
		{ID: 1, Name: "Giant Conch Shell", Price: 12.50, Icon: "🐚", Description: "Authentic ocean sound, perfect for decoration"},
		{ID: 2, Name: "Pro Sandcastle Kit", Price: 24.99, Icon: "🏰", Description: "Includes 5 molds, shovel, and smoothing trowel"},
		{ID: 3, Name: "Inflatable Flamingo", Price: 18.00, Icon: "🦩", Description: "Oversized pool float for maximum relaxation"},
		{ID: 4, Name: "Snorkel & Mask Set", Price: 35.00, Icon: "🤿", Description: "Anti-fog tempered glass with dry-top snorkel"},
		{ID: 5, Name: "Beach Volleyball", Price: 15.50, Icon: "🏐", Description: "Soft-touch synthetic leather, water resistant"},
		{ID: 6, Name: "Sunscreen - SPF 50", Price: 9.99, Icon: "🧴", Description: "Reef-safe formula, 80 minutes water resistance"},
	}
}

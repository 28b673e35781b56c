// Package accounts holds the durable account records of the commerce
// platform: shoppers, sellers, seller assistants, sub-administrators and
// administrators, plus password reset tokens. Persistence is gorm; the Store
// satisfies the engine's AccountProvider contract.
package accounts

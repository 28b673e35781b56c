// Package scope resolves what an authenticated account may touch. Each
// request builds exactly one actor from a closed variant set (administrator,
// sub-administrator, seller, seller assistant, shopper); authorization and
// seller-scope questions are answered by the variant, never by ad hoc role
// switches scattered through handlers.
package scope

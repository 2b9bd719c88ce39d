// Package exchange provides the betting exchange client.
//
// Betting API (JSON-REST, one POST per operation):
//   - https://api.betfair.com/exchange/betting/rest/v1.0/<operation>/
//
// Identity API:
//   - Certificate login: https://identitysso-cert.betfair.com/api/certlogin
//   - Keep alive / logout: https://identitysso.betfair.com/api/{keepAlive,logout}
//
// Operations used: listEvents, listMarketCatalogue, listMarketBook,
// listClearedOrders. Every call carries the application key and, once logged
// in, the session token.
package exchange

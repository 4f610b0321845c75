// Package integration contains the Integration bounded context.
// This context manages connections to external storefront platforms and the
// two-way inventory synchronization between them and the local ledger.
//
// Key concepts:
//   - ShopPlatform: Port interface for talking to a storefront (Shopify, WooCommerce)
//   - Connection: Entity holding one store's credentials and sync settings
//   - ProductMapping: Entity linking a local product to a remote product
//   - SyncLogEntry: Audit record of one synchronization pass
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package billing integrates with the payment processor.

It has three parts, kept deliberately separate:

  - Client: outbound REST calls (create customer, create checkout
    session). Form-encoded requests with bearer auth; the base URL is
    injectable so tests can fake the processor with httptest.
  - VerifySignature / SignPayload: the webhook signature scheme,
    "t=<unix>,v1=<hex hmac>" over "<unix>.<payload>" with a shared
    secret and a replay tolerance window.
  - Transition + Apply: webhook processing. Transition is a pure
    function from (current record, event) to the next record; the
    HTTP layer never mutates state directly. Apply wraps it in a
    transaction with an event-ID ledger, so replaying a delivery is a
    no-op.

Subscription records are mutated exclusively through Apply; no user
action writes them.
*/
package billing

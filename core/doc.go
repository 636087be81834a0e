// Package core contains the shared contracts of the CRM connector: sessions,
// records, result envelopes, the error taxonomy, configuration loading and
// observability helpers. Provider and transport packages depend on core;
// core must not depend on them.
package core

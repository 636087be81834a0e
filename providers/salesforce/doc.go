// Package salesforce implements the CRM client: password grant sign-in,
// SOQL query, SOSL and parameterized search, and sObject writes under
// /services/data/{version}/. Every non-2xx response, whatever the verb, goes
// through NormalizeResponse.
package salesforce

// Package certificate implements the certificate ingestion pipeline:
// upload to file storage, extraction of structured coverage facts through
// the document-extraction collaborator, user confirmation, and the hand-off
// to compliance evaluation. The processing status machine is strictly
// forward-only; failed is terminal.
package certificate

// Package extraction turns uploaded certificate documents into structured
// coverage facts using AWS Bedrock (Claude). The model returns JSON which is
// parsed leniently: fields the model omits or cannot read produce nil values
// rather than errors, so a partially legible certificate still yields every
// coverage the model could see.
package extraction

// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package inventory holds the set of routers the tools can reach, including
// which of them sit behind a jump host. Inventories are validated once against
// a JSON Schema ([gojsonschema]) and a few cross-device rules, then treated as
// read-only.
//
// [gojsonschema]: https://github.com/xeipuuv/gojsonschema
package inventory

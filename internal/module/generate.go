// SPDX-License-Identifier: MIT

package module

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Module body templates. The develop bodies embed the configuration as
// an inline literal so no network round-trip happens locally; the
// produce bodies fetch the emitted asset at runtime and degrade to an
// empty object whenever no browser-like environment, a network failure
// or a non-success status gets in the way.
const (
	developTemplate = `export const config = %s;
export default config;

if (import.meta.hot) {
  import.meta.hot.accept(() => {});
}
`

	developCallbackTemplate = `export const config = %s;
export default function (onConfig) {
  onConfig(config);
}

if (import.meta.hot) {
  import.meta.hot.accept(() => {});
}
`

	produceTemplate = `export async function getConfig() {
  if (typeof window === "undefined" || typeof fetch !== "function") {
    return {};
  }
  try {
    const response = await fetch(%q);
    if (!response.ok) {
      return {};
    }
    return await response.json();
  } catch (error) {
    return {};
  }
}
export default getConfig;
`

	produceCallbackTemplate = `export async function getConfig() {
  if (typeof window === "undefined" || typeof fetch !== "function") {
    return {};
  }
  try {
    const response = await fetch(%q);
    if (!response.ok) {
      return {};
    }
    return await response.json();
  } catch (error) {
    return {};
  }
}
export default function (onConfig) {
  getConfig().then(onConfig);
}
`
)

// GenerateDevelop renders the development module body embedding value
// as an inline literal. json.Marshal escapes U+2028 and U+2029, so the
// literal is safe inside JavaScript source.
func GenerateDevelop(value any, callback bool) (string, error) {
	literal, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("embed config literal: %w", err)
	}
	tmpl := developTemplate
	if callback {
		tmpl = developCallbackTemplate
	}
	return fmt.Sprintf(tmpl, literal), nil
}

// GenerateProduce renders the production module body whose accessor
// fetches outputName under baseURL at runtime.
func GenerateProduce(baseURL, outputName string, callback bool) string {
	tmpl := produceTemplate
	if callback {
		tmpl = produceCallbackTemplate
	}
	return fmt.Sprintf(tmpl, normalizeBase(baseURL)+outputName)
}

// normalizeBase guarantees a trailing slash on the runtime base path.
// An unset base yields "./" so the asset resolves relative to the page.
func normalizeBase(base string) string {
	if base == "" {
		return "./"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

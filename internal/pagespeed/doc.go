// Package pagespeed fetches Lighthouse scores and Core Web Vitals from
// the Google PageSpeed Insights v5 API.
//
// The audit treats PageSpeed as optional: the API works without a key at
// a heavily throttled rate, so the client accepts an empty key and the
// pipeline only runs this step when the operator asked for it. Results
// feed the performance and accessibility score categories, which are
// otherwise reported as unavailable.
package pagespeed

// File: internal/editor/scripts.go
package editor

import (
	"fmt"

	"github.com/xkilldash9x/dailyembed/internal/browser"
)

// Every fragment runs with `this` bound to the editor element and returns
// plain JSON values only.

func snapshotEmbedsFn(selector string) string {
	return fmt.Sprintf(`function() {
	return Array.from(this.querySelectorAll(%s)).map((node, index) => ({
		index: index,
		src: node.getAttribute("src") || "",
	}));
}`, browser.JSValue(selector))
}

func removeEmbedsFn(selector string, indices []int) string {
	return fmt.Sprintf(`function() {
	const nodes = Array.from(this.querySelectorAll(%s));
	let removed = 0;
	for (const i of %s) {
		const node = nodes[i];
		if (node) {
			node.remove();
			removed++;
		}
	}
	return removed;
}`, browser.JSValue(selector), browser.JSValue(indices))
}

// formatEmbedFn stamps layout onto the embed carrying videoID, or onto the
// first recognized-domain embed when videoID is empty.
func formatEmbedFn(selector, videoID string, domains []string, width, height int) string {
	return fmt.Sprintf(`function() {
	const videoId = %s;
	const domains = %s;
	const width = %d;
	const height = %d;
	const target = Array.from(this.querySelectorAll(%s)).find((node) => {
		const src = node.getAttribute("src") || "";
		if (videoId) return src.includes(videoId);
		return domains.some((d) => src.includes(d));
	});
	if (!target) return false;
	target.setAttribute("width", String(width));
	target.setAttribute("height", String(height));
	target.style.width = width + "px";
	target.style.height = height + "px";
	target.style.maxWidth = "100%%";
	target.style.border = "0";
	target.style.display = "block";
	target.style.margin = "0 auto";
	const block = target.closest("p, div");
	if (block && block !== this) {
		block.classList.add("ql-align-center");
		block.style.textAlign = "center";
		block.style.width = "100%%";
	}
	return true;
}`, browser.JSValue(videoID), browser.JSValue(domains), width, height, browser.JSValue(selector))
}

func cursorAfterMarkerFn(marker string) string {
	return fmt.Sprintf(`function() {
	const marker = %s;
	const blocks = Array.from(this.querySelectorAll("p, h1, h2, h3, h4, h5, h6, div"));
	const target = blocks.find((b) => (b.textContent || "").trim().includes(marker));
	if (!target) return false;
	const range = document.createRange();
	range.setStartAfter(target);
	range.collapse(true);
	const sel = window.getSelection();
	sel.removeAllRanges();
	sel.addRange(range);
	this.focus();
	return true;
}`, browser.JSValue(marker))
}

const cursorAtEndFn = `function() {
	const range = document.createRange();
	range.selectNodeContents(this);
	range.collapse(false);
	const sel = window.getSelection();
	sel.removeAllRanges();
	sel.addRange(range);
	this.focus();
	return true;
}`

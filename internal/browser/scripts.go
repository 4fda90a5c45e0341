// internal/browser/scripts.go
package browser

// Script fragments used by the CDP element implementation. Each is a function
// expression invoked with this bound to the element.

// findFn collects elements matching a CSS or XPath expression under root.
const findFn = `function(root, kind, expr) {
	var out = [];
	if (kind === "xpath") {
		var doc = root.ownerDocument || root;
		var snap = doc.evaluate(expr, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (var i = 0; i < snap.snapshotLength; i++) {
			var n = snap.snapshotItem(i);
			if (n && n.nodeType === Node.ELEMENT_NODE) out.push(n);
		}
	} else {
		var list = root.querySelectorAll(expr);
		for (var j = 0; j < list.length; j++) out.push(list[j]);
	}
	return out;
}`

const textFn = `function() {
	return (this.innerText || this.textContent || "").trim();
}`

const visibleFn = `function() {
	if (!this.isConnected) return false;
	var style = window.getComputedStyle(this);
	if (style.display === "none" || style.visibility === "hidden" || style.opacity === "0") return false;
	var rect = this.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
}`

const enabledFn = `function() {
	return !(this.disabled === true);
}`

// prepareClickFn scrolls the element into view and reports the center point
// plus whether a real pointer event at that point would reach it.
const prepareClickFn = `function() {
	this.scrollIntoView({block: "center", inline: "center"});
	var rect = this.getBoundingClientRect();
	var x = rect.left + rect.width / 2;
	var y = rect.top + rect.height / 2;
	var hit = document.elementFromPoint(x, y);
	return {x: x, y: y, hittable: !!hit && (hit === this || this.contains(hit))};
}`

const jsClickFn = `function() {
	this.click();
	return true;
}`

const focusFn = `function() {
	if (typeof this.focus === "function") this.focus();
	return document.activeElement === this || this.contains(document.activeElement);
}`

const clearFn = `function() {
	if (this.disabled || this.readOnly) return false;
	if (this.isContentEditable) {
		this.innerHTML = "";
	} else {
		this.value = "";
	}
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
	return true;
}`
